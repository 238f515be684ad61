// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package dispatch 是多模态内容的编排层。

# 概述

给定一组按作者意图排序的内容条目（文本与媒体交错）和一个
provider+model 目标，Dispatcher 依次完成：格式校验、能力表快速失败、
路径解析 / 内联解码、按提供商策略路由上传缓存或内联 base64，
最终组装提供商专用部件。输出顺序与输入严格一致，文本与媒体的
交错关系原样保留。

# 错误语义

  - 模态不受支持 → MEDIA_UNSUPPORTED_MODALITY，该样本致命，
    在任何网络调用之前返回。
  - 选项不受支持（如 image_detail）→ 非致命，告警后丢弃选项继续。
  - 上传失败 / 配额超限 → 原样上抛，不自动重试，由调用方决定
    是否重试整个样本。

# 并发

单次调度内各条目经 errgroup 并发解析，结果按下标落位；
跨样本的并发由上层评测运行器负责，上传缓存是唯一共享可变资源。
*/
package dispatch
