// Package paths defines the run directory layout.
//
// # Directory Structure
//
//	<log base>/
//	  run_20250101_120000/
//	    turns.jsonl          (turn journal, no images)
//	    turn_0001.png        (annotated screenshot per turn)
//	    PAUSED               (pause sentinel, presence = paused)
//	    crop.json            (operator crop region)
//	    allowed_tools.json   (operator tool permissions)
//	    memory.json          (execution engine state)
//	    panel.log            (operator log)
//
// # Usage
//
//	runDir, err := paths.NewRunDir("panel_log", time.Now())
//	sentinel := paths.Sentinel(runDir)
package paths
