package portscan

var serviceNames = map[int]string{
	20:   "FTP Data",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	143:  "IMAP",
	443:  "HTTPS",
	445:  "SMB",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	8080: "HTTP-Proxy",
}

// ServiceName returns the well-known service label for port, or "" if the
// port is not in the table.
func ServiceName(port int) string {
	return serviceNames[port]
}
