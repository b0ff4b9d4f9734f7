// Package pipeline runs one probe for every entry of a playlist under a
// global concurrency cap and a per-host cap.
//
// Two interchangeable Controller implementations exist:
//   - StreamScheduler starts one goroutine per entry, gated by a weighted
//     semaphore. It is the primary strategy and can keep thousands of
//     network waits in flight cheaply.
//   - WorkerPool runs a fixed number of workers that pull entry indexes from
//     a channel, one blocking probe per worker. It is the fallback.
//
// New picks the strategy with a capability check and falls back exactly once.
// Callers only see the Controller interface; both strategies report the same
// progress and return the same statistics.
//
// Dispatch is host-aware in both strategies: an entry is started only when a
// global slot and a slot for its host are both free. Entries of a saturated
// host wait in a per-host queue while other hosts proceed.
//
// Probe goroutines only read the link of their entry and never write to the
// entry slice. They send (index, status) pairs to a single collector
// goroutine, which writes each status into its entry, keeps the running
// counts and notifies the ProgressObserver. The returned slice therefore keeps input order no matter
// in which order probes finish.
package pipeline
