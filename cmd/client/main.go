package main

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/server"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalln(err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		url       string
		codecName string
		mazeFile  string
		profile   model.Profile
		level     string
	)
	cmd := &cobra.Command{
		Use:          "mathkombat-client",
		Short:        "Play math kombat against a running server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile.Difficulty = model.Difficulty(level)
			if err := profile.Validate(); err != nil {
				return err
			}
			codec, err := server.CodecByName(codecName)
			if err != nil {
				return err
			}
			grid := maze.Default()
			if mazeFile != "" {
				if grid, err = maze.Load(mazeFile); err != nil {
					return err
				}
			}
			conn, err := Dial(url, codec)
			if err != nil {
				return err
			}
			defer conn.Close()

			g := NewGame(conn, grid, profile)
			err = ebiten.Run(g.update, grid.Cols*size, grid.Rows*size+hudHeight, 1, "Math Kombat")
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&url, "url", "ws://localhost:8080/play", "game server websocket url")
	f.StringVar(&codecName, "codec", "gob", "wire codec: json, gob or msgpack")
	f.StringVar(&mazeFile, "maze", "", "maze layout the server plays, embedded layout when empty")
	f.StringVarP(&profile.Name, "name", "n", "", "fighter name")
	f.IntVar(&profile.Age, "age", 12, "fighter age")
	f.StringVar(&profile.Gender, "gender", model.Genders[0], "fighter gender")
	f.StringVar(&profile.Style, "style", "", "fighting style")
	f.StringVarP(&level, "difficulty", "d", string(model.Recruit), "Recruit, Veteran or Elite")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
