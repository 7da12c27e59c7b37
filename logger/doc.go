/*
Package logger provides logging functionality to a restnest resource layer by defining
the required behavior in [Logger] and providing an implementation of it with [NestLogger].

The Logger interface outputs messages at certain levels of importance.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.

Log messages emitted by [NestLogger] are composed of a timestamp, log level,
call site, message and log context:

	2022/04/28 15:55:21 [DEBUG] resource/dispatch.go:43 'such fun!' log_context: "{"user":"{"id": 1}}"

Sometimes, especially with internal packages, the file and line number in a log
needs to be configurable. [SkipLogger] provides additional configuration functionality
by setting the number of frames to skip back in order to reach the desired caller.

When the SENTRY_DSN environment variable is set, [New] wraps the constructed
logger in a [SentryLogger], which additionally ships warn-or-worse logs to Sentry.
*/
package logger
