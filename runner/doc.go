// Package runner executes examples declared with the suite package.
//
// The main components are:
//   - ExampleExecutor: runs one example inside an isolation unit and classifies its outcome
//   - letSet: memoizes let values for the duration of one example run
//   - recorder: keeps the first failure of a run, so later hooks cannot overwrite it
//   - Runner: runs every focused example of a set of suites sequentially and aggregates results
//
// An example never makes the executor fail: assertion failures, unexpected
// panics, abnormal terminations of the isolation unit and teardown failures
// all end up in the returned example record.
package runner
