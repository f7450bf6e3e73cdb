package tourguide

// Version is the release of the tourguide module.
const Version = "0.1.0"
