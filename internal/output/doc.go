// Package output provides structured output handling for the mem CLI.
//
// Every command works for both humans and coding agents: the Printer
// switches between styled human output and machine-readable JSON based
// on the --json flag and TTY detection.
//
// # Printer
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonFlag, output.IsTTY(cmd.OutOrStdout()))
//
//	printer.Success(map[string]any{"message": "Spec created", "slug": s.Slug})
//	printer.Error(err)
//	printer.Println("Some text")
//
// # JSON Mode
//
// When JSON mode is enabled (via --json flag), all output is structured:
//
//	// Success: {"message": "...", "slug": "...", ...}
//	// Error: {"error": "message", "code": N}
//
// # Exit Codes
//
//	output.ExitSuccess     // 0: Success
//	output.ExitUserError   // 1: User error (bad args, unknown slug)
//	output.ExitSystemError // 2: System error (git, GitHub, I/O)
//	output.ExitConflict    // 3: Conflict (spec exists, gates not met)
//
// Use the error constructors to create properly-coded errors:
//
//	output.NewUserError("no spec matches prefix: auth")
//	output.NewSystemError("git command failed")
//	output.NewConflictError("spec already exists: auth-flow")
package output
