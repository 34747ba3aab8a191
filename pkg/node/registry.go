package node

// Capabilities describes the ports a node type exposes.
type Capabilities struct {
	HasInput    bool
	OutputPorts []string
}

// HasOutput reports whether port is one of the output ports.
func (c Capabilities) HasOutput(port string) bool {
	for _, p := range c.OutputPorts {
		if p == port {
			return true
		}
	}
	return false
}

// DefaultOutput returns the output port to use when a connection doesn't name one.
// It only exists for nodes with exactly one output port.
func (c Capabilities) DefaultOutput() (string, bool) {
	if len(c.OutputPorts) != 1 {
		return "", false
	}
	return c.OutputPorts[0], true
}

type definition struct {
	hasInput bool
	outputs  []string
	defaults func() Data
}

var single = []string{OutputPort}

var registry = map[Type]definition{
	Entry: {outputs: single, defaults: func() Data {
		return EntryData{Label: "Incoming Call"}
	}},
	Queue: {hasInput: true, outputs: single, defaults: func() Data {
		return QueueData{Label: "Queue", QueueName: "General", Strategy: "round-robin", MaxWaitSeconds: 300, MusicOnHold: true}
	}},
	IVR: {hasInput: true, outputs: single, defaults: func() Data {
		return IVRData{
			Label:          "IVR Menu",
			Prompt:         "Press 1 for sales, press 2 for support",
			TimeoutSeconds: 10,
			Options:        map[string]string{"1": "Sales", "2": "Support"},
		}
	}},
	Condition: {hasInput: true, outputs: []string{TruePort, FalsePort}, defaults: func() Data {
		return ConditionData{Label: "Condition"}
	}},
	Transfer: {hasInput: true, outputs: single, defaults: func() Data {
		return TransferData{Label: "Transfer", TransferType: "blind"}
	}},
	Webhook: {hasInput: true, outputs: single, defaults: func() Data {
		return WebhookData{Label: "Webhook", Method: "POST"}
	}},
	Voicemail: {hasInput: true, outputs: single, defaults: func() Data {
		return VoicemailData{Label: "Voicemail", Mailbox: "default"}
	}},
	Exit: {hasInput: true, defaults: func() Data {
		return ExitData{Label: "End Call"}
	}},

	Trigger: {outputs: single, defaults: func() Data {
		return TriggerData{Label: "Trigger", Event: "lead_created"}
	}},
	Email: {hasInput: true, outputs: single, defaults: func() Data {
		return EmailData{Label: "Send Email"}
	}},
	Call: {hasInput: true, outputs: single, defaults: func() Data {
		return CallData{Label: "Call"}
	}},
	SMS: {hasInput: true, outputs: single, defaults: func() Data {
		return SMSData{Label: "Send SMS"}
	}},
	Delay: {hasInput: true, outputs: single, defaults: func() Data {
		return DelayData{Label: "Wait", Duration: 1, Unit: "days"}
	}},
	End: {hasInput: true, defaults: func() Data {
		return EndData{Label: "End Journey"}
	}},
}

// Registered reports whether t has a registry entry.
func Registered(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Defaults returns a fresh default payload for t.
// Unknown types get an empty Custom payload.
func Defaults(t Type) Data {
	def, ok := registry[t]
	if !ok {
		return Custom{Kind: t, Fields: map[string]any{}}
	}
	return def.defaults()
}

// CapabilitiesOf returns the ports of t.
// Unknown types have an input and a single generic output.
func CapabilitiesOf(t Type) Capabilities {
	def, ok := registry[t]
	if !ok {
		return Capabilities{HasInput: true, OutputPorts: []string{OutputPort}}
	}
	outputs := make([]string, len(def.outputs))
	copy(outputs, def.outputs)
	return Capabilities{HasInput: def.hasInput, OutputPorts: outputs}
}
