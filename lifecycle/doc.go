// Package lifecycle coordinates initialization hooks, teardown hooks, and
// process shutdown for the zenject runtime.
//
// Components opt into lifecycle management by implementing [Initializable]
// (post-construct) or [Disposable] (teardown). The [AppLifecycle]
// coordinator tracks managed instances, fans shutdown events out to
// listeners, tears down every already-resolved disposable instance, and
// finally terminates the process. Signal handlers wire SIGINT/SIGTERM and
// recovered panics into the same path.
package lifecycle
