// Package config loads marquee's client configuration.
//
// # Resolution Order
//
// Values are layered, later sources winning:
//
//  1. Built-in defaults
//  2. TOML file (explicit path, else ~/.config/marquee/config.toml)
//  3. ./.env file (read with godotenv, the process environment is not modified)
//  4. Process environment
//
// A missing config file or .env file is not an error. A file that exists but
// fails to parse is.
//
// # Fields
//
//	server_url     = "http://127.0.0.1:5000"   # MARQUEE_SERVER_URL
//	page_size      = 100                       # MARQUEE_PAGE_SIZE
//	poll_interval  = "1s"                      # upload status poll cadence
//	session_path   = "~/.config/marquee/session.toml"
//	log_path       = "~/.local/state/marquee/marquee.log"
//
// Paths starting with ~ are expanded against the user's home directory and
// returned absolute.
package config
