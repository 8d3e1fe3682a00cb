package paperbroker

const Version = "0.3.1"
