// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
Package media 提供多模态内容引用的解析与校验能力。

# 概述

本包位于调度链路的最前端：把数据集记录或程序化构造的 MediaReference
变为可发送的 ResolvedMedia，并在任何网络调用之前完成格式校验。
相对路径始终相对于数据集文件所在目录解析；Data URL 就地解码，
不访问文件系统。

# 核心类型

  - PathResolver — 路径解析器，持有数据集基目录与 zap 日志器，
    Resolve 按来源类型分派（文件 / 内联 / 已上传 URL）。

# 主要能力

  - 格式校验：ValidateFormat 强制音频 ∈ {mp3,wav}、视频 ∈ {mp4,mpeg,mov}，
    且 format 字段对音视频必填；图像不做枚举限制。
  - MIME 推导：根据声明格式或文件扩展名推导 MIME 类型。
  - 线格式解码：DecodeContentItems 把数据集 content 数组解码为
    ContentItem 列表并保持顺序；EncodeContentItems 为其逆操作。

# 错误语义

  - 路径不存在         → MEDIA_REFERENCE_NOT_FOUND
  - base64/结构损坏    → MEDIA_INVALID_REFERENCE
  - 格式缺失或不受支持 → MEDIA_UNSUPPORTED_FORMAT
*/
package media
