package utils

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-roster/backend/internal/timetable"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateAccountFromChineseName 取每个字拼音的前几个字母再加上几位数字，例如 zhangw12
func GenerateAccountFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	account := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		account += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		account += string(digits[rand.Intn(len(digits))])
	}

	return account
}

var roles = []domain.Role{
	domain.RoleScheduler,
	domain.RoleViewer,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateAccountFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

var passwordChars = []rune("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789")

// GenerateRandomPassword 用于新建账号的初始密码，使用 crypto/rand
func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	size := big.NewInt(int64(len(passwordChars)))
	for i := range password {
		n, err := crand.Int(crand.Reader, size)
		if err != nil {
			panic(err)
		}
		password[i] = passwordChars[n.Int64()]
	}
	return string(password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// GenerateRandomShifts 生成 n 个系列，每个系列在随机的若干天重复，时间落在 08:30 到 20:30 之间
func GenerateRandomShifts(n int) []domain.Shift {
	shifts := make([]domain.Shift, 0)

	for i := 0; i < n; i++ {
		series := fmt.Sprintf("%s-%s", GenerateRandomID(2, 2), GenerateRandomID(1, 2))

		// 从 08:30 开始以半小时为单位
		start := 510 + rand.Intn(20)*30
		duration := (rand.Intn(4) + 1) * 30
		if start+duration > 20*60+30 {
			duration = 20*60 + 30 - start
		}
		required := rand.Intn(3) + 1

		for _, day := range GenerateRandomDays() {
			shifts = append(shifts, domain.Shift{
				ID:          timetable.NewID(),
				Series:      series,
				DayOfWeek:   day,
				StartTime:   fmt.Sprintf("%02d:%02d:00", start/60, start%60),
				EndTime:     fmt.Sprintf("%02d:%02d:00", (start+duration)/60, (start+duration)%60),
				RequiredTAs: required,
			})
		}
	}

	return shifts
}

// 用 Fisher-Yates 洗牌算法来生成随机的工作日
func GenerateRandomDays() []domain.DayOfWeek {
	days := append([]domain.DayOfWeek{}, domain.Weekdays[:5]...)

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(len(days)) + 1

	return days[:n]
}

// GenerateRandomTA 随机把班次分到三个偏好集合中，每个班次最多出现在一个集合
func GenerateRandomTA(shifts []domain.Shift) domain.TA {
	name := GenerateRandomChineseName()
	ta := domain.TA{
		ID:             GenerateAccountFromChineseName(name),
		Name:           name,
		RequiredShifts: rand.Intn(3) + 1,
		IsGradStudent:  rand.Intn(2) == 0,
		Desired:        []domain.Shift{},
		Undesired:      []domain.Shift{},
		Unavailable:    []domain.Shift{},
	}

	for _, s := range shifts {
		switch rand.Intn(4) {
		case 0:
			ta.Desired = append(ta.Desired, s)
		case 1:
			ta.Undesired = append(ta.Undesired, s)
		case 2:
			ta.Unavailable = append(ta.Unavailable, s)
		}
	}

	return ta
}

func GenerateRandomTimetable(seriesNum int, taNum int) domain.Timetable {
	t := timetable.Empty()
	t.Shifts = GenerateRandomShifts(seriesNum)

	seen := make(map[string]bool)
	for len(t.TAs) < taNum {
		ta := GenerateRandomTA(t.Shifts)
		if seen[ta.ID] {
			continue
		}
		seen[ta.ID] = true
		t.TAs = append(t.TAs, ta)
	}

	return t
}
