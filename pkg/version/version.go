package version

// Version is the current version of the todoservice application
// This is the single source of truth for the version number
const Version = "1.0.0"

// ServiceName is the name of the service
const ServiceName = "todoservice"
