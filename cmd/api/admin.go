package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mosaicboard/cmd/app"
	"mosaicboard/internal/config"
	"mosaicboard/internal/database"
	"mosaicboard/internal/models"
	"mosaicboard/internal/service"
)

func migrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.ConnectDB(cfg)
			if err != nil {
				return err
			}
			defer db.CloseDB()

			return db.RunMigrations()
		},
	}
}

// withApp runs fn against a fully wired App and closes it afterwards.
func withApp(ctx context.Context, cfg *config.Config, fn func(a *app.App) error) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func boardCommand(cfg *config.Config) *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Provision and remove boards",
	}

	boardCmd.AddCommand(boardCreateCommand(cfg), boardUpdateCommand(cfg), boardDeleteCommand(cfg))

	return boardCmd
}

func boardCreateCommand(cfg *config.Config) *cobra.Command {
	var board models.Board
	var layout string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board inside a course module",
		RunE: func(cmd *cobra.Command, args []string) error {
			board.Layout = models.Layout(layout)

			return withApp(cmd.Context(), cfg, func(a *app.App) error {
				if err := a.Services.Board.CreateBoard(cmd.Context(), &board); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created board %d\n", board.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&board.CourseID, "course", 0, "course id")
	cmd.Flags().Int64Var(&board.CmID, "cm", 0, "course module id")
	cmd.Flags().Int64Var(&board.ContextID, "context", 0, "capability context id")
	cmd.Flags().StringVar(&board.Name, "name", "", "board name")
	cmd.Flags().StringVar(&board.Intro, "intro", "", "board description")
	cmd.Flags().StringVar(&layout, "layout", string(models.LayoutWall), "wall, grid, canvas, stream or timeline")
	cmd.MarkFlagRequired("course")
	cmd.MarkFlagRequired("context")
	cmd.MarkFlagRequired("name")

	return cmd
}

func boardUpdateCommand(cfg *config.Config) *cobra.Command {
	var name, intro, layout string

	cmd := &cobra.Command{
		Use:   "update <boardid>",
		Short: "Change a board's name, intro or layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseID(args[0])
			if err != nil {
				return err
			}

			fields := boardUpdateFromFlags(cmd, name, intro, layout)
			if fields == (models.BoardUpdate{}) {
				return errors.New("nothing to update: pass --name, --intro or --layout")
			}

			return withApp(cmd.Context(), cfg, func(a *app.App) error {
				board, err := a.Services.Board.UpdateBoard(cmd.Context(), boardID, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated board %d (%s, %s)\n", board.ID, board.Name, board.Layout)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "board name")
	cmd.Flags().StringVar(&intro, "intro", "", "board description")
	cmd.Flags().StringVar(&layout, "layout", "", "wall, grid, canvas, stream or timeline")

	return cmd
}

// boardUpdateFromFlags keeps only the flags given on the command line, so
// an explicit empty --intro clears the intro.
func boardUpdateFromFlags(cmd *cobra.Command, name, intro, layout string) models.BoardUpdate {
	var fields models.BoardUpdate
	if cmd.Flags().Changed("name") {
		fields.Name = &name
	}
	if cmd.Flags().Changed("intro") {
		fields.Intro = &intro
	}
	if cmd.Flags().Changed("layout") {
		l := models.Layout(layout)
		fields.Layout = &l
	}
	return fields
}

func boardDeleteCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <boardid>",
		Short: "Delete a board with all its cards, reactions, comments and sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), cfg, func(a *app.App) error {
				if err := a.Services.Board.DeleteBoard(cmd.Context(), boardID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted board %d\n", boardID)
				return nil
			})
		},
	}
}

func roleCommand(cfg *config.Config) *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Manage role assignments",
	}

	roleCmd.AddCommand(&cobra.Command{
		Use:   "assign <contextid> <userid> <guest|student|teacher|manager>",
		Short: "Give a user a role in a context, replacing any previous one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextID, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
			if err != nil {
				return err
			}
			role := models.Role(args[2])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[2])
			}

			return withApp(cmd.Context(), cfg, func(a *app.App) error {
				if err := a.Repo.Role.Assign(cmd.Context(), contextID, userID, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d is now %s in context %d\n", userID, role, contextID)
				return nil
			})
		},
	})

	return roleCmd
}

func tokenCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "token <userid>",
		Short: "Issue a bearer token and sesskey for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			auth := service.NewAuthService(cfg)

			token, err := auth.IssueToken(userID)
			if err != nil {
				return err
			}
			sesskey, err := auth.IssueSesskey(userID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "token:   %s\nsesskey: %s\n", token, sesskey)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
