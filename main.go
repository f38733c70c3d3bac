package main

import "task-review-system.com/task-review-system/cmd"

func main() {
	cmd.Execute()
}
