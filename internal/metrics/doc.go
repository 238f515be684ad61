// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖媒体解析、
内容调度、上传、上传缓存、日志脱敏与数据库六个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter 与 Histogram 向量指标，
    按业务域分组管理。

# 主要能力

  - 媒体解析指标：解析总数、失败计数（按错误码）、解析体积分布，
    按 kind/source 分组。
  - 调度指标：调度总数与耗时、被降级丢弃的选项计数，
    按 provider/model 分组。
  - 上传指标：上传总数、耗时与体积分布，按 provider 分组。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
  - 脱敏指标：被从日志中脱敏的媒体条目计数，按 kind 分组。
  - 数据库指标：查询耗时 Histogram，按 database/operation 分组。
*/
package metrics
