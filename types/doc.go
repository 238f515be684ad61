// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 EvalFlow 框架的全局共享类型定义。

# 概述

types 是框架最底层的公共包，不依赖任何内部包，为 media、capability、
upload、dispatch、evallog 等上层模块提供统一的类型契约。所有跨包共享的
结构体、枚举与错误码均定义于此，以避免循环依赖。

# 核心类型

  - MediaKind / ContentType — 模态枚举（image / audio / video / text）
  - MediaSource / SourceKind — 媒体来源（文件路径 / 内联 base64 / 上传 URL）
  - MediaReference          — 不可变媒体引用（Kind + Source + Format + Detail）
  - ResolvedMedia           — 解析后的媒体（字节或远端 URL + MIME + 大小）
  - ContentItem             — 多模态消息条目，顺序在整个调度链路中严格保留
  - ResolvedContent         — 条目与解析结果的配对，供日志脱敏使用
  - UploadResult            — 上传服务返回的 URL 与过期时间
  - Error / ErrorCode       — 结构化错误体系，含 Retryable 与 Provider 标记

# 主要能力

  - 引用构造：NewFileReference / NewInlineReference / NewUploadedReference
  - 条目构造：NewTextItem / NewMediaItem
  - 错误工具链：IsErrorCode / GetErrorCode / IsRetryable
  - 常用错误构造：NewReferenceNotFoundError / NewUnsupportedFormatError /
    NewUnsupportedModalityError / NewUploadQuotaExceededError
*/
package types
