/*
Package cli provides helpers shared by the relay command: output
formatting, progress reporting, exit codes and signal handling.

Output Formatting:

Commands return a *Table (or any value) and let the --format flag pick
the rendering:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "Imported")
	progress.Start(len(seeds))
	for _, s := range seeds {
		// store s
		progress.Increment(s.Path)
	}
	progress.Finish()

Exit Codes:

ExitCode maps configuration errors to 2 and every other error to 1.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
