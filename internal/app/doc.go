// Package app is the composition root of the console.
//
// NewEnv loads the configuration and preferences, opens the log file and
// the credential store, and builds the session manager, the API client and
// the three list collections. Both front ends start from an Env: Run drives
// the Bubble Tea program and a background Poller that keeps the loan list
// fresh, while the CLI commands call the same collections directly.
//
// Nothing here is global. Each Env owns its collaborators and Close
// releases the log file and the session subscription.
package app
