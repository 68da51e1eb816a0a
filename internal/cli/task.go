package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для управления задачами чекаута.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage checkout tasks",
	}

	cmd.AddCommand(
		newTaskSubmitCmd(clientFn, outputFn),
		newTaskListCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var size string

	cmd := &cobra.Command{
		Use:   "submit PLATFORM PRODUCT",
		Short: "Submit a checkout task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.SubmitTask(SubmitTaskRequest{
				Platform: args[0],
				Product:  args[1],
				Size:     size,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task submitted: %s", task.ID))
			out.Print(
				[]string{"ID", "PLATFORM", "PRODUCT", "SIZE", "STATE"},
				[][]string{{task.ID, task.Platform, task.Product, task.Size, task.State}},
				task,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "", "Desired size (any available if not specified)")

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, err := client.ListTasks()
			if err != nil {
				return err
			}

			headers := []string{"ID", "PLATFORM", "PRODUCT", "STATE", "RESULT", "REASON", "ATTEMPT"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{
					t.ID, t.Platform, t.Product, t.State, t.Result, t.Reason,
					strconv.Itoa(t.Attempt),
				}
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.GetTask(args[0])
			if err != nil {
				return err
			}

			duration := ""
			if task.DurationMs > 0 {
				duration = fmt.Sprintf("%dms", task.DurationMs)
			}
			out.Detail([][2]string{
				{"ID", task.ID},
				{"PLATFORM", task.Platform},
				{"PRODUCT", task.Product},
				{"SIZE", task.Size},
				{"STATE", task.State},
				{"RESULT", task.Result},
				{"REASON", task.Reason},
				{"ERROR", task.Error},
				{"ATTEMPT", strconv.Itoa(task.Attempt)},
				{"CREATED", task.CreatedAt},
				{"STARTED", task.StartedAt},
				{"FINISHED", task.FinishedAt},
				{"DURATION", duration},
			}, task)
			return nil
		},
	}
}

func newTaskCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel TASK_ID",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.CancelTask(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Cancel requested: %s", args[0]))
			return nil
		},
	}
}
