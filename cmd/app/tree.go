package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disiqueira/gotree/v3"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/starford/minutebook/internal"
	"github.com/starford/minutebook/internal/meetingservice"
	"github.com/starford/minutebook/internal/xmlcodec"
)

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print projects, tracks and meetings",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "seed", Usage: "Create a demo project when the data root is empty"},
		},
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			if cmd.Bool("seed") {
				if _, err := rt.Service.Store().SeedDemo(); err != nil {
					return fmt.Errorf("seed demo data: %w", err)
				}
			}
			text, err := renderTree(ctx, rt.Service, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprint(out(cmd), text)
			return nil
		}),
	}
}

// renderTree draws every project, track and meeting. Finalized meetings show
// how long ago they were stamped relative to now.
func renderTree(ctx context.Context, svc *meetingservice.Service, now time.Time) (string, error) {
	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	root := gotree.New("minutebook")
	for _, p := range projects {
		pNode := root.Add(fmt.Sprintf("%s (%s)", p.Name, p.Slug))
		for _, t := range p.Tracks {
			tNode := pNode.Add(fmt.Sprintf("%s (%s) every %d %s", t.Name, t.Slug, t.RecurrenceInterval, t.RecurrenceMode))
			meetings, err := svc.ListMeetings(ctx, p.Slug, t.Slug)
			if err != nil {
				return "", err
			}
			for _, m := range meetings {
				tNode.Add(meetingLine(m, now))
			}
		}
	}
	return root.Print(), nil
}

func meetingLine(m meetingservice.MeetingSummary, now time.Time) string {
	parts := []string{m.Number, m.Date}
	if m.Topic != "" {
		parts = append(parts, m.Topic)
	}
	if m.FinalizedAt != "" {
		if at, err := time.ParseInLocation(xmlcodec.TimestampLayout, m.FinalizedAt, time.Local); err == nil {
			parts = append(parts, "[finalized "+humanize.RelTime(at, now, "ago", "from now")+"]")
		} else {
			parts = append(parts, "[finalized]")
		}
	}
	return strings.Join(parts, " ")
}
