package main

import (
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/spf13/cobra"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := device.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				warn("No serial ports found")
				return nil
			}

			title("Serial ports")
			for _, p := range ports {
				marker := " "
				if p.Name == a.cfg.Serial.Port {
					marker = "*"
				}
				step(marker+" "+p.Name, p.Description)
			}
			return nil
		},
	}
}
