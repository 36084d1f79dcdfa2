// Package constants provides shared constants used throughout the bizmerge codebase.
// This includes file permissions, default paths, delimiters, and the tuning
// values of the merge pipeline that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Input defaults mirror the layout of the datasets directory.
const (
	// DefaultWebsitePath is the website crawl export
	DefaultWebsitePath = "datasets/website_dataset.csv"

	// DefaultSocialPath is the social-network business directory export
	DefaultSocialPath = "datasets/facebook_dataset.csv"

	// DefaultDirectoryPath is the mapping/search directory export
	DefaultDirectoryPath = "datasets/google_dataset.csv"

	// WebsiteDelimiter separates fields in the website export
	WebsiteDelimiter = ';'

	// DefaultDelimiter separates fields in the social and directory exports
	DefaultDelimiter = ','
)

// Output defaults
const (
	// DefaultOutputDir is where the fused table is written
	DefaultOutputDir = "out"

	// DefaultOutputFile is the file name of the fused table
	DefaultOutputFile = "company_data.xlsx"

	// DefaultSheetName is the single sheet of the spreadsheet output
	DefaultSheetName = "Sheet1"

	// DefaultSQLTable is the table written by the sqlite sink
	DefaultSQLTable = "company_data"

	// DefaultConfigFile is the optional configuration file name
	DefaultConfigFile = ".bizmerge"
)

// Resolution tuning
const (
	// DetailThreshold is the minimum similarity score at which a more
	// detailed candidate is appended to the running best value
	DetailThreshold = 75

	// SeedScore is the confidence of the first candidate
	SeedScore = 100

	// MaxScore is the upper bound of a similarity score
	MaxScore = 100

	// AppendSeparator joins an appended candidate to the running best value
	AppendSeparator = ", "

	// AddressSeparator joins the city, region and country of a website row
	AddressSeparator = ", "

	// DefaultInspectLimit is the number of records the inspect command prints
	DefaultInspectLimit = 20
)

// Progress markers printed by the run command
const (
	// MarkerResolved is printed once the linked rows have been fused
	MarkerResolved = "Reached resolved conflict stage"

	// MarkerSuccess is printed after the output was written
	MarkerSuccess = "SUCCESS!"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
