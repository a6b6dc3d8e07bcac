package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/packetplane/switchd/pkg/platform"
)

func showCommand(cliContext *cli.Context) error {
	if err := setupLogger(cliContext); err != nil {
		return err
	}

	cfg, err := platform.Load(cliContext.String("platform"))
	if err != nil {
		return err
	}

	fmt.Printf("platform %q: %d ports, %d lane groups\n", cfg.Name, len(cfg.Ports), len(cfg.ControllingPorts()))
	if cfg.HasProfiles() {
		fmt.Printf("profiles: %d, port resource APIs: %v\n", len(cfg.SupportedProfiles), cfg.UsePortResourceAPIs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Port", "Name", "Phys", "Group", "Lane Speeds"})
	for _, m := range cfg.Ports {
		var speeds []string
		for _, s := range m.LaneSpeeds {
			speeds = append(speeds, s.String())
		}
		table.Append([]string{
			fmt.Sprintf("%d", m.ID),
			m.Name,
			fmt.Sprintf("%d", m.Phys),
			fmt.Sprintf("%d", m.ControllingPort),
			strings.Join(speeds, ","),
		})
	}
	table.Render()
	return nil
}
