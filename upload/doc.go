// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package upload 为需要预上传的提供商实现"上传一次、多次引用"模式。

# 概述

部分提供商（如 Gemini 的音视频）不接受内联 base64，媒体必须先经
Files API 上传，再在请求中按 URL 引用。远端存储按文件体积与账户
总量限额，且文件仅保留 48 小时。本包以内容指纹（sha256）为键缓存
上传记录：相同内容复用 URL，相同指纹的并发上传合并为一次在途请求，
过期记录按未命中处理并触发重新上传（懒惰过期，不做主动清扫）。

# 核心类型

  - Cache — 上传缓存，GetOrUpload 是唯一入口；配额预检失败返回
    MEDIA_UPLOAD_QUOTA_EXCEEDED，上传失败不自动重试。
  - RecordStore — 记录存储接口；MemoryStore 进程内，RedisStore
    跨进程共享。
  - GeminiUploader — Files API 可恢复上传协议的实现，带速率限制
    与 PROCESSING 状态轮询。

# 并发契约

Cache 是跨评测任务共享的唯一可变资源。single-flight 保证同一指纹
至多一个在途上传；不同指纹完全并行。运行被取消时已完成的上传仍会
落记录，便于同一样本重试时复用。
*/
package upload
