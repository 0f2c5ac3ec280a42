// Package supervisor owns the agent process.
//
// A Supervisor keeps exactly one child alive at a time. After an initial
// delay it spawns the configured command with the run directory exported
// in its environment, forwards stdout and stderr line by line into the log
// tagged main.out and main.err, and respawns the child after a restart
// delay whenever it exits. Stop ends the loop: the child is asked to
// terminate, killed if it does not exit in time, and both output drainers
// are joined before Stop returns.
//
// States:
//
//	idle -> starting -> running -> crashed -> starting ...
//	                            \-> stopped
//
// Example Usage:
//
//	sup := supervisor.New(cfg, logger)
//	go sup.Run(ctx)
//	defer sup.Stop(context.Background())
package supervisor
