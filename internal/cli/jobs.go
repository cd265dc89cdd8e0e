package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rlei-miris/kit-render-service/internal/client"
	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
)

// newJobsCmd creates the jobs command for listing and inspecting job records.
func newJobsCmd(newClient func() *client.Client) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "jobs [id]",
		Short: "List or inspect render job records",
		Long: `Jobs lists recent render job records, newest first. With an id argument it
shows the full record for one job. With --interactive it opens a browsable
list; selecting an entry prints its record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			if len(args) == 1 {
				rec, err := c.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRecord(rec)
				return nil
			}

			records, err := c.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printInfo("no job records")
				return nil
			}

			if interactive {
				return browseJobs(records)
			}
			for _, r := range records {
				fmt.Printf("%s  %-20s %-20s %s\n",
					shortID(r.JobID), r.CameraName, r.Mode, formatRelativeTime(r.CreatedAt))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse jobs interactively")
	return cmd
}

func browseJobs(records []jobstore.Record) error {
	model, err := tea.NewProgram(NewJobListModel(records)).Run()
	if err != nil {
		return err
	}
	if m, ok := model.(JobListModel); ok && m.Selected != nil {
		printRecord(m.Selected)
	}
	return nil
}

func printRecord(r *jobstore.Record) {
	printInfo("job %s", r.JobID)
	printKeyValue("camera", r.CameraName)
	printKeyValue("stage", r.StagePath)
	printKeyValue("mode", r.Mode)
	printKeyValue("created", r.CreatedAt.Format(time.RFC3339))
	printFile(r.ColorImagePath)
	printFile(r.DepthImagePath)
	printFile(r.DepthArrayPath)
	printKeyValue("focal length", fmt.Sprintf("%g", r.Camera.FocalLength))
	printKeyValue("horizontal aperture", fmt.Sprintf("%g", r.Camera.HorizontalAperture))
	printKeyValue("vertical aperture", fmt.Sprintf("%g", r.Camera.VerticalAperture))
	printKeyValue("clip range", fmt.Sprintf("%g..%g", r.Camera.NearClip, r.Camera.FarClip))
}
