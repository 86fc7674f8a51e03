package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/minutebook/internal"
	"github.com/starford/minutebook/internal/export"
	"github.com/starford/minutebook/internal/meetingservice"
)

// args returns exactly n positional arguments or a usage error.
func args(cmd *cli.Command, n int) ([]string, error) {
	if cmd.Args().Len() != n {
		return nil, fmt.Errorf("%s: expected %d argument(s): %s", cmd.Name, n, cmd.ArgsUsage)
	}
	return cmd.Args().Slice(), nil
}

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a project",
				ArgsUsage: "NAME",
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 1)
					if err != nil {
						return err
					}
					p, err := rt.Service.CreateProject(ctx, a[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "created project %s\n", p.Slug)
					return nil
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a project (the slug stays the same)",
				ArgsUsage: "PROJECT NAME",
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					p, err := rt.Service.RenameProject(ctx, a[0], a[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "renamed project %s to %q\n", p.Slug, p.Name)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a project with all its tracks and meetings",
				ArgsUsage: "PROJECT",
				Flags:     []cli.Flag{yesFlag()},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 1)
					if err != nil {
						return err
					}
					if err := confirm(cmd, os.Stdin, "delete project "+a[0]); err != nil {
						return err
					}
					if err := rt.Service.DeleteProject(ctx, a[0]); err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "deleted project %s\n", a[0])
					return nil
				}),
			},
		},
	}
}

func trackCommand() *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Manage tracks",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a track",
				ArgsUsage: "PROJECT NAME",
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					t, err := rt.Service.CreateTrack(ctx, a[0], a[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "created track %s/%s\n", a[0], t.Slug)
					return nil
				}),
			},
			{
				Name:      "set",
				Usage:     "Change track settings",
				ArgsUsage: "PROJECT TRACK",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "location", Usage: "Default meeting location"},
					&cli.StringFlag{Name: "teams-link", Usage: "Default Teams link"},
					&cli.StringSliceFlag{Name: "roster", Usage: "Roster member IDs (replaces the roster)"},
					&cli.StringSliceFlag{Name: "template", Usage: "Section templates for first meetings (replaces them)"},
					&cli.StringFlag{Name: "recurrence", Usage: "weekly, biweekly or monthly"},
					&cli.IntFlag{Name: "interval", Usage: "Recurrence interval"},
				},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					t, err := rt.Service.UpdateTrack(ctx, a[0], a[1], trackUpdate(cmd))
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "updated track %s/%s: %s every %d %s\n",
						a[0], t.Slug, t.Name, t.RecurrenceInterval, t.RecurrenceMode)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a track with all its meetings",
				ArgsUsage: "PROJECT TRACK",
				Flags:     []cli.Flag{yesFlag()},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					if err := confirm(cmd, os.Stdin, "delete track "+a[0]+"/"+a[1]); err != nil {
						return err
					}
					if err := rt.Service.DeleteTrack(ctx, a[0], a[1]); err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "deleted track %s/%s\n", a[0], a[1])
					return nil
				}),
			},
		},
	}
}

// trackUpdate collects only the flags given on the command line.
func trackUpdate(cmd *cli.Command) meetingservice.TrackUpdate {
	var u meetingservice.TrackUpdate
	str := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	u.Name = str("name")
	u.DefaultsLocation = str("location")
	u.DefaultsTeamsLink = str("teams-link")
	u.RecurrenceMode = str("recurrence")
	if cmd.IsSet("roster") {
		u.Roster = cmd.StringSlice("roster")
	}
	if cmd.IsSet("template") {
		u.SectionTemplates = cmd.StringSlice("template")
	}
	if cmd.IsSet("interval") {
		n := int(cmd.Int("interval"))
		u.RecurrenceInterval = &n
	}
	return u
}

func meetingCommand() *cli.Command {
	return &cli.Command{
		Name:  "meeting",
		Usage: "Manage meetings",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create the next meeting from the latest one or from --copy-from",
				ArgsUsage: "PROJECT TRACK",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "copy-from", Usage: "Meeting number to copy sections and open items from"},
				},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					d, err := rt.Service.CreateMeeting(ctx, a[0], a[1], cmd.String("copy-from"))
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "created meeting %s on %s\n", d.Meeting.Number, d.Meeting.Header.Date)
					return nil
				}),
			},
			{
				Name:      "next",
				Usage:     "Create the next meeting dated by the track's recurrence",
				ArgsUsage: "PROJECT TRACK",
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 2)
					if err != nil {
						return err
					}
					d, err := rt.Service.CreateNextMeeting(ctx, a[0], a[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "created meeting %s on %s\n", d.Meeting.Number, d.Meeting.Header.Date)
					return nil
				}),
			},
			{
				Name:      "finalize",
				Usage:     "Finalize a meeting; it can no longer be edited",
				ArgsUsage: "PROJECT TRACK NUMBER",
				Flags:     []cli.Flag{yesFlag()},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 3)
					if err != nil {
						return err
					}
					if err := confirm(cmd, os.Stdin, "finalize meeting "+a[2]); err != nil {
						return err
					}
					d, err := rt.Service.FinalizeMeeting(ctx, a[0], a[1], a[2])
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "finalized meeting %s at %s\n", a[2], d.Meeting.FinalizedAt)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a meeting directory",
				ArgsUsage: "PROJECT TRACK NUMBER",
				Flags:     []cli.Flag{yesFlag()},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 3)
					if err != nil {
						return err
					}
					if err := confirm(cmd, os.Stdin, "delete meeting "+a[2]); err != nil {
						return err
					}
					if err := rt.Service.DeleteMeeting(ctx, a[0], a[1], a[2]); err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "deleted meeting %s\n", a[2])
					return nil
				}),
			},
			{
				Name:      "show",
				Usage:     "Print the agenda of a meeting",
				ArgsUsage: "PROJECT TRACK NUMBER",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the meeting as JSON"},
				},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 3)
					if err != nil {
						return err
					}
					if cmd.Bool("json") {
						d, err := rt.Service.GetMeeting(ctx, a[0], a[1], a[2])
						if err != nil {
							return err
						}
						enc := json.NewEncoder(out(cmd))
						enc.SetIndent("", "  ")
						return enc.Encode(d)
					}
					text, err := rt.Service.Agenda(ctx, a[0], a[1], a[2])
					if err != nil {
						return err
					}
					fmt.Fprint(out(cmd), text)
					return nil
				}),
			},
			{
				Name:      "export",
				Usage:     "Export a meeting into its exports folder",
				ArgsUsage: "PROJECT TRACK NUMBER",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: export.FormatICS, Usage: "ics, txt, pdf or docx"},
				},
				Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
					a, err := args(cmd, 3)
					if err != nil {
						return err
					}
					path, _, err := rt.Service.Export(ctx, a[0], a[1], a[2], cmd.String("format"))
					if err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "exported %s\n", path)
					return nil
				}),
			},
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search agenda items across all meetings",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of results"},
		},
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			a, err := args(cmd, 1)
			if err != nil {
				return err
			}
			results, err := rt.Service.Search(ctx, a[0], int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(out(cmd), "no results")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out(cmd), "%s/%s/%s  [%s] %s\n", r.Project, r.Track, r.Number, r.Status, r.Description)
			}
			return nil
		}),
	}
}
