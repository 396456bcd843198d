// Package main provides the entry point for the Kotoba blog service.
// Kotoba is a bilingual personal blog with an admin backend. This repository
// implements its access-control core: invitation-based admin provisioning,
// password + TOTP login with stateless session cookies, and the comment
// anti-abuse state machine that decides when commenters must solve a CAPTCHA.
package main
