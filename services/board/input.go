package board

import (
	"voicebox-go/types"
	"voicebox-go/x/timex"
)

// handleClick is the click behaviour of the main button. A device stuck in
// starting without a network link most likely holds bad credentials, so the
// click first re-enters network provisioning. The chat toggle always follows.
func (b *Board) handleClick() {
	app := b.deps.App
	if app.DeviceState() == types.DeviceStateStarting && !b.deps.Wifi.IsConnected() {
		b.log.Info().Msg("click while starting offline: reconfiguring network")
		b.deps.NetCfg.TriggerReconfiguration()
	}
	app.ToggleChatState()

	if c := b.deps.Conn; c != nil {
		name := b.plan.Button.Name
		c.Publish(c.NewMessage(TopicButton(name), types.ButtonClick{Name: name, TS: timex.NowMs()}, false))
	}
	if b.deps.OnClick != nil {
		b.deps.OnClick()
	}
}
