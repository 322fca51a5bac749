package scan

// DefaultPorts is what gets scanned when the user doesn't select ports
// explicitly.
var DefaultPorts []int

func init() {

	for port := range knownPorts {
		DefaultPorts = append(DefaultPorts, port)
	}
}

// DescribePort names the service conventionally found on a port, or ""
// when it has no well-known assignment.
func DescribePort(port int) string {
	if s, ok := knownPorts[port]; ok {
		return s
	}

	return ""
}

var knownPorts = map[int]string{
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "domain",
	80:    "http",
	110:   "pop3",
	111:   "rpcbind",
	119:   "nntp",
	123:   "ntp",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	161:   "snmp",
	179:   "bgp",
	389:   "ldap",
	443:   "https",
	445:   "microsoft-ds",
	465:   "smtps",
	514:   "syslog",
	587:   "submission",
	631:   "ipp",
	636:   "ldaps",
	873:   "rsync",
	993:   "imaps",
	995:   "pop3s",
	1080:  "socks",
	1433:  "ms-sql-s",
	1521:  "oracle",
	1723:  "pptp",
	2049:  "nfs",
	2375:  "docker",
	3128:  "squid-http",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	5060:  "sip",
	5432:  "postgresql",
	5672:  "amqp",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-proxy",
	8443:  "https-alt",
	9000:  "cslistener",
	9200:  "elasticsearch",
	11211: "memcached",
	27017: "mongod",
}
