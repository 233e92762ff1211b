package backend

import "fmt"

// Seed adds n person entries below baseDN. Every third entry is also an
// inetOrgPerson and every other entry carries a mail value, so searches
// can hit indexed and unindexed attributes with differently sized results.
func Seed(m *Memory, baseDN string, n int) error {
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("user%05d", i)
		e := NewEntry(fmt.Sprintf("uid=%s,ou=people,%s", uid, baseDN))
		e.SetAttribute("uid", uid)
		e.SetAttribute("cn", fmt.Sprintf("User %d", i))
		if i%3 == 0 {
			e.SetAttribute("objectClass", "top", "person", "inetOrgPerson")
		} else {
			e.SetAttribute("objectClass", "top", "person")
		}
		if i%2 == 0 {
			e.SetAttribute("mail", uid+"@example.com")
		}
		if err := m.Add(e); err != nil {
			return err
		}
	}
	return nil
}
