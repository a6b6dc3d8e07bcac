package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/portgroup"
	"github.com/packetplane/switchd/pkg/state"
)

func validateCommand(cliContext *cli.Context) error {
	if err := setupLogger(cliContext); err != nil {
		return err
	}

	cfg, err := platform.Load(cliContext.String("platform"))
	if err != nil {
		return err
	}
	snap, err := state.Load(cliContext.String("state"))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Group", "Ports", "Lane Mode", "Result"})

	invalid := 0
	for _, ctl := range cfg.ControllingPorts() {
		mappings := cfg.PortsByControllingPort(ctl)

		var (
			ports []*state.PortConfig
			names []string
		)
		for _, m := range mappings {
			if pc := snap.Port(m.ID); pc != nil {
				ports = append(ports, pc)
				names = append(names, fmt.Sprintf("%d", m.ID))
			}
		}

		var mode lanemodeResult
		if cfg.HasProfiles() {
			mode.mode, mode.err = portgroup.CalculateDesiredLaneModeFromProfiles(ports, cfg.SupportedProfiles)
		} else {
			ctlMapping, err := cfg.Port(ctl)
			if err != nil {
				return err
			}
			mode.mode, mode.err = portgroup.CalculateDesiredLaneMode(ports, ctlMapping.LaneSpeeds)
		}

		row := []string{
			fmt.Sprintf("%d", ctl),
			strings.Join(names, ","),
		}
		if mode.err != nil {
			invalid++
			row = append(row, "-", mode.err.Error())
		} else {
			row = append(row, mode.mode.String(), "ok")
		}
		table.Append(row)
	}
	table.Render()

	if invalid > 0 {
		return fmt.Errorf("%d of %d port groups cannot realize the desired state", invalid, len(cfg.ControllingPorts()))
	}
	fmt.Printf("desired state is realizable on platform %q\n", cfg.Name)
	return nil
}

type lanemodeResult struct {
	mode lanemode.Mode
	err  error
}
