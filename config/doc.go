// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
包 config 提供 EvalFlow 的统一配置加载。

# 概述

配置按 默认值 → YAML 文件 → 环境变量 的优先级合并。环境变量键由
前缀（默认 EVALFLOW）与结构体 env 标签逐层拼接而成，例如媒体日志
开关对应 EVALFLOW_MEDIA_INCLUDE_IN_LOGS。策略类配置（如媒体是否
进日志）在进程启动时读一次，随后以显式参数传入各组件，不走全局
可变状态。

# 核心类型

  - Config：完整配置树，覆盖媒体处理、上传缓存、提供商凭据、
    数据库、日志、指标与遥测。
  - Loader：Builder 模式的加载器，支持自定义校验器。

# 主要能力

  - YAML 解析（gopkg.in/yaml.v3）与反射式环境变量覆盖，
    支持 string/int/float/bool/Duration/[]string 字段。
  - Validate 做基本合法性检查：并发上限、上传配额、存储类型、
    日志级别。
*/
package config
