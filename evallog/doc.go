// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package evallog 负责样本级评测结果的持久化与媒体脱敏。

# 概述

每个样本的调度结果（成功的载荷内容或失败的错误）以结构化条目
写入数据库。媒体字节是否进入日志由进程级策略决定：默认保留
完整 base64，关闭后只留占位符（原始路径 / 远端 URL）。策略只
影响持久化形态，发给提供商的载荷不受影响。

# 核心类型

  - Redactor — 脱敏器，构造时固定 includeMedia 策略。
  - LoggedItem — 内容条目的日志形态。
  - Sink / Entry — GORM 落库器与表模型；失败样本带错误落库，
    不会从结果中消失。
*/
package evallog
