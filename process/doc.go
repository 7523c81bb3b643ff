// Package process spawns and supervises child processes.
//
// Run executes a command to completion and captures its output. Start
// launches a long-running command and streams every stdout and stderr line
// to a callback while it runs. Both place the child in its own process
// group: canceling the context sends SIGTERM to the group and SIGKILL once
// the grace period has passed.
package process
