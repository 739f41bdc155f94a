/*
Package cli provides command-line interface utilities for Umbra.

The cli package includes output formatters, progress reporting, and common
helpers used by the umbra command.

Output Formatting:

Command results can be rendered as text, JSON, or YAML:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

YAML output exists mainly for printing effective configuration back out.

Progress Reporting:

The bench command uses the progress reporter while it drives traffic
through the proxy:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(totalRequests)
	for i := 0; i < totalRequests; i++ {
		// Send request
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
