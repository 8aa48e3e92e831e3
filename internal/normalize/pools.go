package normalize

import "math/rand"

// Machine is a hardware model with its reference configuration.
type Machine struct {
	Model  string
	Config string
}

var serverModelPool = []Machine{
	{"Dell PowerEdge R750", "CPU：Intel Xeon Silver 4314\n内存：64GB\n硬盘：2TB SSD"},
	{"HPE ProLiant DL380 Gen10", "CPU：Intel Xeon Gold 5218\n内存：128GB\n硬盘：4TB SSD"},
	{"Lenovo ThinkSystem SR650", "CPU：Intel Xeon Silver 4216\n内存：64GB\n硬盘：2TB SSD"},
	{"Inspur NF5280M5", "CPU：Intel Xeon Silver 4210\n内存：64GB\n硬盘：2TB SSD"},
	{"Huawei FusionServer 2288H V5", "CPU：Intel Xeon Gold 6230\n内存：128GB\n硬盘：4TB SSD"},
	{"Dell PowerEdge R740", "CPU：Intel Xeon Gold 5220\n内存：128GB\n硬盘：4TB SSD"},
	{"HPE ProLiant DL360 Gen10", "CPU：Intel Xeon Silver 4210\n内存：64GB\n硬盘：2TB SSD"},
	{"Lenovo ThinkSystem SR630", "CPU：Intel Xeon Silver 4214\n内存：64GB\n硬盘：2TB SSD"},
}

var clientModelPool = []Machine{
	{"Lenovo ThinkPad T14 Gen 4", "CPU：Intel Core i7-1360P\n内存：16GB\n硬盘：1TB SSD"},
	{"Dell Precision 3660", "CPU：Intel Core i7-13700\n内存：32GB\n硬盘：1TB SSD"},
	{"HP EliteDesk 800 G9", "CPU：Intel Core i5-13500\n内存：16GB\n硬盘：512GB SSD"},
	{"Lenovo ThinkCentre M90t", "CPU：Intel Core i7-12700\n内存：16GB\n硬盘：1TB SSD"},
}

var serverOSPool = []string{
	"Windows Server 2019",
	"Windows Server 2022",
	"Ubuntu Server 20.04 LTS",
	"Ubuntu Server 22.04 LTS",
	"Red Hat Enterprise Linux 8.8",
	"Red Hat Enterprise Linux 9.2",
	"CentOS Stream 9",
	"SUSE Linux Enterprise Server 15 SP5",
	"Debian 11",
	"Debian 12",
	"银河麒麟高级服务器操作系统 V10",
	"统信UOS服务器版 V20",
	"中标麒麟高级服务器操作系统 V7",
}

var clientOSPool = []string{
	"Windows 10 专业版 22H2",
	"Windows 11 专业版 23H2",
	"macOS Ventura 13",
	"macOS Sonoma 14",
	"Ubuntu 22.04 LTS",
	"Ubuntu 24.04 LTS",
}

var serverSoftPool = []string{
	"Nginx 1.24",
	"Apache HTTP Server 2.4",
	"Tomcat 9.0",
	"Tomcat 10.1",
	"Java 17 LTS",
	"Python 3.11",
	"Node.js 20 LTS",
	"PostgreSQL 13",
	"MySQL 8.0",
	"Redis 7.2",
}

var clientSoftPool = []string{"Chrome 120", "Edge 120", "Firefox 121", "Safari 17"}

var serverConfigPool = []string{
	"CPU: Intel Xeon Silver 4314\n内存: 64GB\n硬盘: 2TB SSD",
	"CPU: Intel Xeon Gold 5318Y\n内存: 128GB\n硬盘: 2TB NVMe",
	"CPU: AMD EPYC 7313\n内存: 64GB\n硬盘: 2TB SSD",
	"CPU: Intel Xeon Silver 4210R\n内存: 32GB\n硬盘: 1TB SSD",
}

var clientConfigPool = []string{
	"CPU: Intel Core i5-12400\n内存: 16GB\n硬盘: 512GB SSD",
	"CPU: Intel Core i7-12700\n内存: 32GB\n硬盘: 1TB SSD",
	"CPU: AMD Ryzen 5 5600\n内存: 16GB\n硬盘: 512GB SSD",
	"CPU: AMD Ryzen 7 5800X\n内存: 32GB\n硬盘: 1TB SSD",
}

// envDraw is the single pool draw made for one document.
type envDraw struct {
	serverModel  Machine
	clientModel  Machine
	serverOS     string
	clientOS     string
	serverSoft   string
	clientSoft   string
	serverConfig string
	clientConfig string
}

// drawEnv picks every pooled value in a fixed order, so a seeded rng yields
// the same environment regardless of which fields end up being filled.
func drawEnv(rng *rand.Rand) envDraw {
	return envDraw{
		serverModel:  serverModelPool[rng.Intn(len(serverModelPool))],
		clientModel:  clientModelPool[rng.Intn(len(clientModelPool))],
		serverOS:     serverOSPool[rng.Intn(len(serverOSPool))],
		clientOS:     clientOSPool[rng.Intn(len(clientOSPool))],
		serverSoft:   serverSoftPool[rng.Intn(len(serverSoftPool))],
		clientSoft:   clientSoftPool[rng.Intn(len(clientSoftPool))],
		serverConfig: serverConfigPool[rng.Intn(len(serverConfigPool))],
		clientConfig: clientConfigPool[rng.Intn(len(clientConfigPool))],
	}
}

func (d envDraw) values() map[string]string {
	return map[string]string{
		"env__server_model":  d.serverModel.Model,
		"env__client_model":  d.clientModel.Model,
		"env__server_os":     d.serverOS,
		"env__client_os":     d.clientOS,
		"env__server_soft":   d.serverSoft,
		"env__client_soft":   d.clientSoft,
		"env__server_config": d.serverConfig,
		"env__client_config": d.clientConfig,
	}
}
