// Package notification delivers user-facing messages through pluggable
// channels. Notifiers implement delivery for one system; the manager
// routes a notice type to the registered notifier and template.
package notification
