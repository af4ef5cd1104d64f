package market

const Version = "0.3.0"
