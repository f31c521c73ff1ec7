// Package github posts rendered consensus reports to pull requests.
package github
