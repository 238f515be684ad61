// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package capability 维护提供商/模型的多模态能力表。

# 概述

模型家族的能力差异（是否支持图像、音频、视频，是否接受 image_detail
这类选项，哪些模态必须先上传）由一张带版本号的数据表描述，而非
硬编码分支。表可从 YAML 文件加载（LoadTable），也有编译内置的
默认版本（DefaultTable）。模型名按前缀通配模式匹配，模型家族更新
只需要改表。

# 核心类型

  - Table / Entry — 能力表与条目，只读数据。
  - Registry — 查询入口：Supports、SupportsOption、RequiresUpload、
    CheckModality。

# 使用约定

调度器在任何网络调用之前用 CheckModality 快速失败，
返回 MEDIA_UNSUPPORTED_MODALITY。选项不受支持不视为致命错误，
由调度器降级处理。
*/
package capability
