// Package mqtt provides the optional MQTT event mirror for the dashboard.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing notifications, retained device state and statistics
//   - Device command subscriptions ({prefix}/device/+/set)
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	{prefix}/system/status           retained online/offline status, LWT
//	{prefix}/dashboard/notification  one message per mutation
//	{prefix}/dashboard/stats         retained latest statistics
//	{prefix}/device/{id}/state       retained device JSON
//	{prefix}/device/{id}/set         inbound commands
//
// Command payloads are {"action":"toggle"} or {"action":"set_value","value":22}.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if errors.Is(err, mqtt.ErrDisabled) {
//	    // run without a mirror
//	}
//	defer client.Close()
//
//	mirror := mqtt.NewMirror(client, client.Topics(), byte(cfg.MQTT.QoS))
//	go mirror.Run(ctx)
//	err = client.Subscribe(client.Topics().AllDeviceCommands(), 1,
//	    mirror.CommandHandler(func(cmd mqtt.Command) error {
//	        return apply(cmd)
//	    }))
//
// When the broker is unreachable the mirror drops messages silently;
// the dashboard keeps working without it.
package mqtt
