// Package slack delivers chat payloads through the Slack Web API
// chat.postMessage method using a bot token.
package slack
