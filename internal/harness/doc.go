// Package harness runs implementations of the clustering algorithm as
// external, timed, isolated jobs.
//
// An Implementation is a capability with two operations: a one-time Build
// (compile or warm-up) and RunOnce, which executes one argument set in one
// execution mode and returns a JobResult. Process is the external-program
// variant; the Job Runner (RunSweep) is written once against the interface.
//
// # Scheduling
//
// Jobs never overlap. Each invocation is a blocking call-and-wait, and
// only the external process is timed: staging, argument translation and
// artifact harvesting are excluded from JobResult.Duration. There is no
// timeout; a hung process stalls the sweep until it exits or the context
// is cancelled.
//
// # Artifacts
//
// Implementations that write their result to a file are harvested by
// name: the artifact is the file in the artifact directory whose name
// contains the role keyword (default "corridor") and the dataset
// identifier. Names are compared in Unicode NFC form and ties are broken
// lexicographically. A consumed artifact is deleted so a later run for the
// same dataset cannot read a stale file. A missing artifact yields an
// empty output unless the implementation is configured as strict.
//
// # Usage
//
//	impl := harness.NewProcess(harness.ProcessConfig{
//	    Name:    "rust",
//	    Command: []string{"./target/release/rust_impl"},
//	    Output:  harness.OutputArtifact,
//	    Modes:   []string{"serial", "parallel-rayon"},
//	}, nil)
//	if err := impl.Build(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.RunSweep(ctx, impl, enum, impl.Modes())
package harness
