// Package telegram implements the chat client on top of the Telegram Bot API.
//
// Downloads resolve the file path with getFile and stream the body from the
// configured file endpoint so progress can be reported per write. The public
// Bot API caps downloads at 20 MB; point api_endpoint and file_endpoint at a
// local Bot API server to lift that limit.
package telegram
