package eventbus

// Core lifecycle topics published by the registry. Collaborating components
// define their own topics in their own packages using the same
// "domain/action" convention (e.g. "wifi/connected", "ota/progress").
const (
	// TopicComponentReady carries the component name as payload, published
	// once per component after the whole set has been brought up.
	TopicComponentReady = "component/ready"

	// TopicComponentError carries the component name, published when a
	// component reports a failure outside bring-up.
	TopicComponentError = "component/error"

	// TopicSystemReady is published once after every component is active.
	TopicSystemReady = "system/ready"

	// TopicSystemReboot asks the host to restart the runtime.
	TopicSystemReboot = "system/reboot"

	// TopicShutdownStart is published and drained before teardown begins,
	// so listeners can react while every component is still up.
	TopicShutdownStart = "shutdown/start"
)
