package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-shutter/internal/controller"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/mqtt"
)

// ctlClientSuffix keeps the CLI from taking over the daemon's session.
const ctlClientSuffix = "-ctl"

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <shutter-id> <command>",
		Short: "Send a command to a running shutterd",
		Long: `Publish a command on graylogic/shutter/{id}/command.

Commands: update, unpause, clear, set_fixed_time, unset_fixed_time,
unset_manual_position, configure, output.

Examples:
  shutterctl send living update
  shutterctl send living set_fixed_time --value 2024-06-03T19:00:00Z
  shutterctl send living configure --key dayStartTimeWeekend --value 0930`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := shutterConfig(cmd, args[0])
			if err != nil {
				return err
			}
			key, _ := cmd.Flags().GetString("key")     //nolint:errcheck // flag is registered
			value, _ := cmd.Flags().GetString("value") //nolint:errcheck // flag is registered

			payload, err := controlPayload(args[1], key, value, cmd.Flags().Changed("value"), time.Now())
			if err != nil {
				return err
			}

			mqttCfg := cfg.MQTT
			mqttCfg.Broker.ClientID += ctlClientSuffix
			client, err := mqtt.Connect(mqttCfg)
			if err != nil {
				return fmt.Errorf("connecting to MQTT: %w", err)
			}
			defer client.Close() //nolint:errcheck // command exits next

			topic := mqtt.Topics{}.ShutterCommand(args[0])
			if err := client.Publish(topic, payload, byte(cfg.MQTT.QoS), false); err != nil { //nolint:gosec // validated to 0-2
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %s\n", args[1], topic)
			return nil
		},
	}
	cmd.Flags().String("key", "", "property key for configure")
	cmd.Flags().String("value", "", "command value")
	return cmd
}

// controlPayload encodes a command for the shutter command topic.
func controlPayload(command, key, value string, hasValue bool, now time.Time) ([]byte, error) {
	msg := controller.ControlMessage{
		Command:   command,
		Key:       key,
		Timestamp: now.UTC(),
	}
	if hasValue {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		msg.Value = raw
	}
	return json.Marshal(msg)
}
