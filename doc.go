// Package tmplog is a structured logging core built around message
// templates. A call such as
//
//	log.Info("User {Name} logged in at {When:yyyy-MM-dd}", "alice", time.Now())
//
// renders a human readable message and, at the same time, captures Name and
// When as typed properties on the record, so sinks can emit both the text and
// the data behind it.
//
// # Design overview
//
//   - Templates are parsed once: a TemplateCache maps template text to an
//     immutable Template (literal spans, escaped braces and named holes with
//     an optional format hint). Concurrent first use parses once; a malformed
//     template is reported to the ErrorHandler and logged verbatim.
//   - Values are a closed set (null, bool, int64, float64, string, date/time)
//     so encoders switch on a Kind instead of reflecting over arbitrary Go
//     values. Date/time values keep their own kind end to end.
//   - A Factory owns the sinks and the enrichment properties. Its state is
//     swapped atomically on every configuration change, so the log path reads
//     it without taking a lock. Properties merge static, then dynamic, then
//     active scopes (outermost first), then template holes; later wins.
//   - Sinks registered with Async get a private Queue: a bounded FIFO drained
//     by one consumer goroutine, flushed when MinQueueSize items are buffered
//     or MaxQueueTime has passed. A full queue discards the oldest record by
//     default (FullError and FullIgnore are available). A record a sink fails
//     to handle stays at the head and is retried on the next flush.
//   - Faults never reach the caller. Parse errors, sink errors, queue
//     warnings and panics from sinks or dynamic properties go to the
//     factory's ErrorHandler.
//   - Encoders append to pooled byte buffers. Console, JSON and CLEF
//     (compact log event format) are built in; escaping scans eight bytes at
//     a time.
//
// # Usage
//
//	factory := tmplog.NewFactory(tmplog.WithInstanceID(""))
//	defer factory.Close()
//	_ = factory.AddSink("console", tmplog.NewConsoleSink(os.Stderr, tmplog.EncoderOptions{}),
//		tmplog.SinkOptions{MinLevel: tmplog.InfoLevel, IncludeScopes: true})
//	_ = factory.AddSink("clef", tmplog.NewCLEFSink(file, tmplog.EncoderOptions{}),
//		tmplog.SinkOptions{Async: true})
//
//	log := factory.Logger("orders")
//	scope := log.BeginScope("Request {RequestId}", reqID)
//	defer scope.End()
//	log.Info("Order {OrderId} shipped to {Customer}", 42, "alice")
//
// FactoryFromEnv builds a ready factory from LOG_* environment variables and
// the config subpackage builds one from YAML. The metrics subpackage exports
// queue counters to Prometheus; cmd/clefcat pretty-prints CLEF files.
//
// # Integration notes
//
//   - StdLogger and StdLoggerDetect bridge *log.Logger output into a Logger.
//   - ContextWithLogger and Ctx carry a Logger through a context.Context.
//   - The ansi subpackage holds the console palettes (ansi.PaletteByName).
package tmplog
