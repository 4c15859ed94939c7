package scrap

// ProgressFunc receives progress updates for a named task, for example a
// downloading or extracting app. For downloads current/total are byte
// counts, for extraction they are archive entry counts. A total of -1
// means the total is unknown.
//
// Installs run concurrently, so implementations must be safe to call from
// multiple goroutines.
type ProgressFunc func(name string, current, total int64)
