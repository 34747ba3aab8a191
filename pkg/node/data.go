package node

// Data is the type-specific payload of a node.
//
// Each registered Type has its own struct. Types which aren't
// registered carry a Custom payload so that documents using
// extension node types stay editable.
type Data interface {
	NodeType() Type
}

// EntryData is the payload of the inbound call entry point.
type EntryData struct {
	Label     string `mapstructure:"label"`
	DIDNumber string `mapstructure:"didNumber"`
}

func (EntryData) NodeType() Type { return Entry }

// QueueData routes the caller into an agent queue.
type QueueData struct {
	Label          string `mapstructure:"label"`
	QueueName      string `mapstructure:"queueName"`
	Strategy       string `mapstructure:"strategy"`
	MaxWaitSeconds int    `mapstructure:"maxWaitSeconds"`
	MusicOnHold    bool   `mapstructure:"musicOnHold"`
}

func (QueueData) NodeType() Type { return Queue }

// IVRData plays a menu prompt and collects a digit.
type IVRData struct {
	Label          string `mapstructure:"label"`
	Prompt         string `mapstructure:"prompt"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	// Options maps a keypad digit to the option label, e.g. "1" -> "Sales".
	Options map[string]string `mapstructure:"options"`
}

func (IVRData) NodeType() Type { return IVR }

// ConditionData branches on a boolean expression.
// The expression is evaluated against the 'call' and 'contact' maps.
type ConditionData struct {
	Label      string `mapstructure:"label"`
	Expression string `mapstructure:"expression"`
}

func (ConditionData) NodeType() Type { return Condition }

// TransferData hands the call to an external number or extension.
type TransferData struct {
	Label        string `mapstructure:"label"`
	Destination  string `mapstructure:"destination"`
	TransferType string `mapstructure:"transferType"`
}

func (TransferData) NodeType() Type { return Transfer }

// WebhookData calls out to an HTTP endpoint.
type WebhookData struct {
	Label  string `mapstructure:"label"`
	URL    string `mapstructure:"url"`
	Method string `mapstructure:"method"`
}

func (WebhookData) NodeType() Type { return Webhook }

// VoicemailData records a message into a mailbox.
type VoicemailData struct {
	Label    string `mapstructure:"label"`
	Mailbox  string `mapstructure:"mailbox"`
	Greeting string `mapstructure:"greeting"`
}

func (VoicemailData) NodeType() Type { return Voicemail }

// ExitData hangs up the call.
type ExitData struct {
	Label   string `mapstructure:"label"`
	Message string `mapstructure:"message"`
}

func (ExitData) NodeType() Type { return Exit }

// TriggerData starts a journey when an event is received.
type TriggerData struct {
	Label string `mapstructure:"label"`
	Event string `mapstructure:"event"`
}

func (TriggerData) NodeType() Type { return Trigger }

// EmailData sends an email to the contact.
type EmailData struct {
	Label    string `mapstructure:"label"`
	Subject  string `mapstructure:"subject"`
	Template string `mapstructure:"template"`
}

func (EmailData) NodeType() Type { return Email }

// CallData places an outbound call through a campaign.
type CallData struct {
	Label      string `mapstructure:"label"`
	CampaignID string `mapstructure:"campaignId"`
	Script     string `mapstructure:"script"`
}

func (CallData) NodeType() Type { return Call }

// SMSData sends a text message.
type SMSData struct {
	Label   string `mapstructure:"label"`
	Message string `mapstructure:"message"`
}

func (SMSData) NodeType() Type { return SMS }

// DelayData waits before continuing the journey.
type DelayData struct {
	Label    string `mapstructure:"label"`
	Duration int    `mapstructure:"duration"`
	Unit     string `mapstructure:"unit"`
}

func (DelayData) NodeType() Type { return Delay }

// EndData terminates a journey.
type EndData struct {
	Label string `mapstructure:"label"`
}

func (EndData) NodeType() Type { return End }

// Custom is the payload of a node type that isn't registered.
type Custom struct {
	Kind   Type
	Fields map[string]any
}

func (c Custom) NodeType() Type { return c.Kind }
