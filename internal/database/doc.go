// Copyright (c) EvalFlow Authors.
// Licensed under the MIT License.

/*
包 database 提供基于 GORM 的数据库访问，支持多驱动与事务重试。

# 概述

本包按配置的驱动（postgres / mysql / sqlite）打开数据库，统一应用
连接池参数，并封装带指数退避的事务重试。评测日志落库走这里，
sqlite 用于本地与测试场景，生产部署可切换 postgres 或 mysql，
无需改调用方代码。

# 核心类型

  - Config：数据库配置，驱动类型、DSN 与连接池参数。
  - DB：GORM 实例与底层 sql.DB 的包装，提供 Ping()、Stats()、
    Close() 与事务方法。
  - TransactionFunc：事务回调函数类型。

# 主要能力

  - 多驱动：dialector 按 Driver 切换，sqlite 采用纯 Go 实现，
    无 cgo 依赖。
  - 事务管理：WithTransaction 单次执行，WithTransactionRetry
    对死锁、序列化失败、连接抖动等可重试错误做指数退避。
*/
package database
