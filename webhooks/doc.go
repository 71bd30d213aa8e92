// Package webhooks routes domain events to subscribed webhooks.
//
// A dispatch selects every subscription for the event kind, skips inactive
// ones and those whose filter rejects the payload, then submits one delivery
// request per match. Submits run concurrently up to a fixed limit and the
// call waits for all of them. Delivery itself, signing and retries belong to
// the handoff target.
package webhooks
