package main

// usageError surfaces an invalid CLI/filter value (§7 UsageError); it maps
// to exit code 1.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }
func (e usageError) ExitCode() int { return 1 }

// deleteError wraps one or more keep-one failures (§7 DeleteError); it maps
// to exit code 2. The individual per-file failures were already reported to
// stderr by the time this is returned — it exists purely to set the exit
// code.
type deleteError struct{ failed int }

func (e deleteError) Error() string { return "one or more files could not be moved to trash" }
func (e deleteError) ExitCode() int { return 2 }

// cancelledError surfaces a user-requested cancellation (§7 Cancelled); it
// maps to exit code 130, matching the conventional SIGINT exit status.
type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }
func (cancelledError) ExitCode() int { return 130 }
