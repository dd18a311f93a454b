package scheduler

import "errors"

// ErrNoInflightRun 任务既没有进行中的运行，也没有可摘除的后续调度
var ErrNoInflightRun = errors.New("task has no in-flight run")

// ErrTaskRunning 任务有进行中的运行，不能删除
var ErrTaskRunning = errors.New("task has an in-flight run")

// ErrNoHandler 任务种类没有注册对应的处理器
var ErrNoHandler = errors.New("no handler registered for task kind")
